package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"questboardAPI/utils"
)

type contextKey string

const AdminIDKey contextKey = "adminID"
const ParticipantIDKey contextKey = "participantID"

// AdminAuth validates the bearer token of a preset admin account.
func AdminAuth(secret []byte) func(http.Handler) http.Handler {
	return bearerAuth(secret, "adminId", AdminIDKey)
}

// ParticipantAuth validates the bearer token issued after participant OTP
// verification.
func ParticipantAuth(secret []byte) func(http.Handler) http.Handler {
	return bearerAuth(secret, "participantId", ParticipantIDKey)
}

func bearerAuth(secret []byte, subjectKey string, ctxKey contextKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader {
				respondWithError(w, http.StatusUnauthorized, "Invalid authorization format. Use 'Bearer <token>'")
				return
			}

			claims, err := utils.ParseToken(secret, token)
			if err != nil {
				log.Printf("Token verification failed: %v", err)
				respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			id, ok := utils.SubjectFromClaims(claims, subjectKey)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Token is not valid for this resource")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminID extracts the authenticated admin id from context.
func GetAdminID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(AdminIDKey).(string)
	return id, ok
}

// GetParticipantID extracts the authenticated participant id from context.
func GetParticipantID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ParticipantIDKey).(string)
	return id, ok
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(fmt.Sprintf(`{"error": "%s"}`, message)))
}
