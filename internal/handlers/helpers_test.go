package handlers_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

func doRaw(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}
