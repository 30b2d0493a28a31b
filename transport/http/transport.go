package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"

	"github.com/pedaragy/pedaragy"
)

func AskHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pedaragy.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			c.String(statusFor(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

// IngestDocumentsHandler accepts a multipart upload, saves each file to the
// upload directory and ingests the saved paths.
func IngestDocumentsHandler(endpoint endpoint.Endpoint, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		files := form.File["documents"]
		if len(files) == 0 {
			err := errors.New("no documents uploaded")
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		paths := make([]string, 0, len(files))
		for _, file := range files {
			path := filepath.Join(uploadDir, filepath.Base(file.Filename))
			if err := c.SaveUploadedFile(file, path); err != nil {
				c.String(http.StatusInternalServerError, err.Error())
				c.Error(err)
				c.Abort()
				return
			}

			paths = append(paths, path)
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, pedaragy.IngestDocumentsRequest{Paths: paths})
		if err != nil {
			c.String(statusFor(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func CorpusStatsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		resp, err := endpoint(ctx, nil)
		if err != nil {
			c.String(statusFor(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func ClearCorpusHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if _, err := endpoint(ctx, nil); err != nil {
			c.String(statusFor(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.String(http.StatusOK, "OK")
	}
}

func CacheStatsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		resp, err := endpoint(ctx, nil)
		if err != nil {
			c.String(statusFor(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func ClearCacheHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if _, err := endpoint(ctx, nil); err != nil {
			c.String(statusFor(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.String(http.StatusOK, "OK")
	}
}

func CompactCacheHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		resp, err := endpoint(ctx, nil)
		if err != nil {
			c.String(statusFor(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

// statusFor maps user-correctable input errors to 400; everything else is a
// failed expectation on the backend.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pedaragy.ErrInvalidMode),
		errors.Is(err, pedaragy.ErrEmptyQuestion):
		return http.StatusBadRequest

	default:
		return http.StatusExpectationFailed
	}
}
