package recovery

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func routerWith(h http.HandlerFunc) *mux.Router {
	r := mux.NewRouter()
	r.Use(New(zerolog.Nop()))
	r.HandleFunc("/api/users/{userId}/messages", h).Methods(http.MethodPost)
	return r
}

func TestPanicBecomes500(t *testing.T) {
	r := routerWith(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/users/u1/messages", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error","code":500}`, rr.Body.String())
}

func TestPanicAfterReplyStartedKeepsReply(t *testing.T) {
	r := routerWith(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("partial"))
		panic("late boom")
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/users/u1/messages", nil))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "partial", rr.Body.String())
}

func TestPassThrough(t *testing.T) {
	r := routerWith(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/users/u1/messages", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestAbortHandlerRepanics(t *testing.T) {
	h := New(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
