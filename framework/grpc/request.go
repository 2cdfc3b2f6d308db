package jwtgrpc

import (
	"context"
	"net/http"
	"net/url"

	"google.golang.org/grpc/metadata"
)

// requestFromContext builds the *http.Request handed to the strategy. gRPC
// metadata becomes request headers, so the strategy's token extractors read
// "authorization" the same way they do for HTTP.
func requestFromContext(ctx context.Context, fullMethod string) *http.Request {
	header := make(http.Header)
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for key, values := range md {
			for _, v := range values {
				header.Add(key, v)
			}
		}
	}

	r := &http.Request{
		Method:     http.MethodPost,
		URL:        &url.URL{Path: fullMethod},
		Proto:      "HTTP/2",
		ProtoMajor: 2,
		Header:     header,
		RequestURI: fullMethod,
	}
	return r.WithContext(ctx)
}
