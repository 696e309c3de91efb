package handler

import (
	"net/http"

	"github.com/msomdec/image-gallery/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	identity *service.IdentityService,
	images *service.ImageService,
	likes *service.LikeService,
	loginLimiter *service.TokenBucket,
	cookieSecure bool,
) {
	mux.HandleFunc("GET /healthz", HandleHealthz)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(auth, h)
	}

	authHandler := NewAuthHandler(auth, identity, cookieSecure)
	mux.HandleFunc("POST /auth/register", authHandler.HandleRegister)
	mux.Handle("POST /auth/login", RateLimit(loginLimiter, http.HandlerFunc(authHandler.HandleLogin)))
	mux.HandleFunc("POST /auth/logout", authHandler.HandleLogout)
	mux.Handle("GET /auth/me", requireAuth(authHandler.HandleMe))

	imageHandler := NewImageHandler(images, likes)
	mux.Handle("GET /image", requireAuth(imageHandler.HandleList))
	mux.Handle("POST /image", requireAuth(imageHandler.HandleUpload))
	mux.Handle("GET /image/search", requireAuth(imageHandler.HandleSearch))
	mux.Handle("GET /image/{id}", requireAuth(imageHandler.HandleGet))
	mux.Handle("GET /image/{id}/file", requireAuth(imageHandler.HandleServe))
	mux.Handle("PATCH /image/{id}", requireAuth(imageHandler.HandleRename))
	mux.Handle("DELETE /image/{id}", requireAuth(imageHandler.HandleDelete))

	likeHandler := NewLikeHandler(likes)
	mux.Handle("GET /like", requireAuth(likeHandler.HandleList))
	mux.Handle("GET /like/{imageId}", requireAuth(likeHandler.HandleGet))
	mux.Handle("POST /like/{imageId}", requireAuth(likeHandler.HandleLike))
	mux.Handle("DELETE /like/{imageId}", requireAuth(likeHandler.HandleUnlike))
}
