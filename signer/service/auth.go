package service

import (
	"context"
	"net/http"

	oprpc "github.com/ethereum-optimism/optimism/op-service/rpc"
	optls "github.com/ethereum-optimism/optimism/op-service/tls"
)

type clientInfoContextKey struct{}

// ClientInfo identifies the caller of an RPC method. The name is taken
// from the DNS SAN of the client certificate presented during the TLS
// handshake, so it is only as trustworthy as the CA that signed it.
type ClientInfo struct {
	ClientName string
}

func ClientInfoFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoContextKey{}).(ClientInfo)
	return info
}

// NewAuthMiddleware returns a middleware that extracts the client name
// from the peer certificate and stores it on the request context. Requests
// without a verified certificate are rejected before they reach a handler.
func NewAuthMiddleware() oprpc.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peerTLSInfo := optls.PeerTLSInfoFromContext(r.Context())
			if peerTLSInfo.LeafCertificate == nil {
				http.Error(w, "client certificate was not provided", http.StatusUnauthorized)
				return
			}
			if len(peerTLSInfo.LeafCertificate.DNSNames) == 0 {
				http.Error(w, "client certificate verified but did not contain DNS SAN extension", http.StatusUnauthorized)
				return
			}
			clientInfo := ClientInfo{ClientName: peerTLSInfo.LeafCertificate.DNSNames[0]}
			newCtx := context.WithValue(r.Context(), clientInfoContextKey{}, clientInfo)
			next.ServeHTTP(w, r.WithContext(newCtx))
		})
	}
}
