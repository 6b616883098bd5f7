package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", "json", &buf)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	l.WithField("k", "v").Info("hello")
	assert.Contains(t, buf.String(), `"k":"v"`)

	assert.Equal(t, logrus.InfoLevel, New("loud", "text", nil).GetLevel())
}

func TestFromContextFallsBack(t *testing.T) {
	assert.Equal(t, logrus.StandardLogger(), FromContext(context.Background()))
}

func TestMiddlewareAttachesRequestLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	h := middleware.RequestID(Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/quizzes/q1", nil))

	require.Len(t, hook.Entries, 1)
	e := hook.LastEntry()
	assert.Equal(t, "inside", e.Message)
	assert.Equal(t, "/quizzes/q1", e.Data["path"])
	assert.Equal(t, http.MethodGet, e.Data["method"])
	assert.NotEmpty(t, e.Data["request_id"])
}
