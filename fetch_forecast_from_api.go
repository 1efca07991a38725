package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// fetchForecastFromAPI performs one GET against url and hands the body to parser.
// There is no retry: the first outcome is the result.
func fetchForecastFromAPI[T any](
	ctx context.Context,
	client *http.Client,
	url string,
	parser func(body io.Reader) (T, *time.Location, error),
) (T, *time.Location, error) {
	var zero T

	resp, err := doUpstreamGet(ctx, client, url)
	if err != nil {
		return zero, nil, err
	}
	defer resp.Body.Close()

	data, loc, err := parser(resp.Body)
	if err != nil {
		return zero, nil, &UpstreamError{Kind: FailureUnknown, Err: fmt.Errorf("failed to parse forecast response: %w", err)}
	}
	return data, loc, nil
}

// doUpstreamGet issues a single GET and returns the response only for a 2xx
// status. The caller closes the body. Transport errors, including client
// timeouts, are FailureConnection; 404 is FailureNotFound; any other non-2xx
// status is FailureUpstreamStatus.
func doUpstreamGet(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &UpstreamError{Kind: FailureUnknown, Err: fmt.Errorf("failed to build request: %w", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Kind: FailureConnection, Err: fmt.Errorf("request to %s failed: %w", req.URL.Host, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		kind := FailureUpstreamStatus
		if resp.StatusCode == http.StatusNotFound {
			kind = FailureNotFound
		}
		return nil, &UpstreamError{
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status from %s%s", req.URL.Host, req.URL.Path),
		}
	}
	return resp, nil
}
