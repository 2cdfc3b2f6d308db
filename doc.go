/*
Package jwtstrategy provides a JWT bearer token authentication strategy.

A Strategy reads a token from the request, verifies it with a pluggable
verifier backend and hands the decoded payload to an application callback
that resolves the user. The outcome is reported to a Host, which decides
what a success or a failure means for the request: storing the user in a
session, flashing an error message, or failing the request outright.

# Quick Start

	import (
	    jwtstrategy "github.com/auth0/go-jwt-strategy"
	    "github.com/auth0/go-jwt-strategy/verifier/jwtgo"
	)

	func main() {
	    strategy, err := jwtstrategy.New(
	        func(ctx context.Context, p jwtstrategy.VerifyParams) (*User, error) {
	            claims, _ := p.Payload.(map[string]any)
	            return users.Find(ctx, claims["sub"])
	        },
	        jwtstrategy.WithVerifier(jwtgo.New()),
	        jwtstrategy.WithSecret(os.Getenv("JWT_SECRET")),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    middleware, err := strategy.Middleware()
	    if err != nil {
	        log.Fatal(err)
	    }

	    http.Handle("/api/", middleware(apiHandler))
	    http.ListenAndServe(":8080", nil)
	}

# Accessing the User

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    user, err := jwtstrategy.UserFromContext[*User](r.Context())
	    if err != nil {
	        http.Error(w, "failed to get user", http.StatusInternalServerError)
	        return
	    }
	    fmt.Fprintf(w, "Hello, %s!", user.Name)
	}

# Authentication Steps

Authenticate runs three steps and stops at the first failure:

 1. The token extractor reads the token. The default, AuthHeaderTokenExtractor,
    takes the second whitespace separated field of the Authorization header.
    No token fails with "Format is Authorization: Bearer [token]".
 2. The verifier checks the token against the secret and the allowed
    algorithms. A verifier that reports no payload fails with "Invalid token".
 3. The VerifyFunc resolves the user from the payload.

An error returned by any step, or a value passed to panic, is turned into a
failure message and cause by Classify:

  - an error keeps its message and is the cause itself
  - a string becomes both the message and the cause
  - anything else is reported as "Unknown error" with its indented JSON as cause

# Hosts and Sessions

DefaultHost stores the user under AuthenticateOptions.SessionKey on success.
On failure it either returns an *AuthorizationError (ThrowOnError) or flashes
{"message": ...} under SessionErrorKey and returns a 401 *ResponseError. Both
match ErrUnauthorized. Supply your own Host with WithHost to change this.

The session package provides sessions backed by memory or Redis. Pass a
session.Manager to Middleware with WithSessionManager to load and commit a
session around every request.

# Verifier Backends

The verifier package defines TokenVerifier. Two backends are provided,
verifier/jwtgo on golang-jwt and verifier/jwxv2 on lestrrat-go/jwx. They
decode claims identically and return *verifier.VerificationError, so they
are interchangeable. backend.New selects one by name at startup.

# Framework Adapters

framework/gin, framework/echo and framework/grpc wrap a Strategy for those
frameworks.

# Thread Safety

A Strategy is immutable after New and safe for concurrent use.
*/
package jwtstrategy
