package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware_BlocksAfterBurst(t *testing.T) {
	r := gin.New()
	// 1 rps with burst 2: first two immediate requests pass, third is blocked
	r.Use(RateLimitMiddleware(1, 2))
	r.GET("/x", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/x", nil)
		req.RemoteAddr = "10.1.2.3:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddleware_KeysAreIndependent(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(1, 1))
	r.GET("/y", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// exhaust the first IP's bucket
	req1 := httptest.NewRequest("GET", "/y", nil)
	req1.RemoteAddr = "10.0.0.1:1111"
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, req1)
	require.Equal(t, http.StatusOK, w1.Code)

	req2 := httptest.NewRequest("GET", "/y", nil)
	req2.RemoteAddr = "10.0.0.1:1111"
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusTooManyRequests, w2.Code)

	// a different IP still gets through
	req3 := httptest.NewRequest("GET", "/y", nil)
	req3.RemoteAddr = "10.0.0.2:2222"
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, req3)
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestLimiterKey_PrefersUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.RemoteAddr = "10.0.0.9:999"

	require.Equal(t, "ip:10.0.0.9", limiterKey(c))
	c.Set("userId", "u-42")
	require.Equal(t, "user:u-42", limiterKey(c))
}
