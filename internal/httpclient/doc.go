// Package httpclient provides the HTTP plumbing used by SQL-over-HTTP drivers.
//
// [NewClient] creates a client tuned for repeated small requests against a
// single host, with keep-alive connection reuse:
//
//	client := httpclient.NewClient(30 * time.Second)
//
// [NewJSONRequest] builds a POST request with a JSON body and validated
// headers:
//
//	req, err := httpclient.NewJSONRequest(ctx, endpoint, headers, payload)
//	resp, err := client.Do(req)
//
// Client counters are reported through
// [github.com/torosent/querybench/internal/clientmetrics] when a
// [Transport] is configured with one.
package httpclient
