// Package httpclient opens long-lived HTTP streams, such as Server-Sent
// Events, with classified errors and optional cleartext HTTP/2.
//
// Streams carry no client timeout; only dialing and the wait for response
// headers are bounded. Cancel the request context or Close the response to
// end a stream.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8080/api/events",
//	    H2C:     true,
//	})
//
//	resp, err := client.DoStream(ctx, httpclient.Request{
//	    Path:    "runs:ws_1",
//	    Headers: map[string]string{"Accept": "text/event-stream"},
//	})
//	defer resp.Close()
//	for {
//	    ev, err := resp.SSE.Next()
//	    ...
//	}
package httpclient
