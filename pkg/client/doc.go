// Package client invokes the media_store channel of a bridge host over
// HTTP.
//
//	c, err := client.New(client.Config{BaseURL: "http://127.0.0.1:8080", Namespace: "com.example.gallery"})
//	...
//	switch err := c.ScanFile(ctx, "/home/me/Pictures/a.jpg"); {
//	case err == nil:
//	case errors.Is(err, client.ErrNotImplemented):
//	default:
//	    var bridgeErr *client.Error
//	    if errors.As(err, &bridgeErr) { ... }
//	}
package client
