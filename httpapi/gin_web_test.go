package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fixkme/evcore/errs"
)

type body struct {
	Status int            `json:"status"`
	Error  string         `json:"error"`
	Causes []string       `json:"causes"`
	Data   map[string]any `json:"data"`
}

func serve(t *testing.T, s *Server, path string) (int, body) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Router.ServeHTTP(w, req)
	var b body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return w.Code, b
}

func TestStatsAndHealth(t *testing.T) {
	var healthErr error
	s, err := NewWeb("tcp", "127.0.0.1:0", &Options{
		Stats:  func() any { return map[string]int{"udp_packets": 3} },
		Health: func() error { return healthErr },
	})
	require.NoError(t, err)
	defer s.Stop()

	code, b := serve(t, s, "/api/stats")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, float64(3), b.Data["udp_packets"])

	code, b = serve(t, s, "/api/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, b.Data["ok"])

	healthErr = errs.Wrap(errs.SocketRead.Printf("udp read"), "udp listener")
	code, b = serve(t, s, "/api/healthz")
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, errs.ErrCode_SocketRead, b.Status)
	require.Equal(t, "udp listener: SOCKET_READ,udp read", b.Error)
	require.Equal(t, []string{"udp listener", "SOCKET_READ,udp read"}, b.Causes)
}

func TestParserError(t *testing.T) {
	code, desc, causes := parserError(nil)
	require.Equal(t, int32(errs.ErrCode_OK), code)
	require.Empty(t, desc)
	require.Nil(t, causes)

	err := errs.Wrap(&errs.IntervalError{Interval: 25 * time.Millisecond, Resolution: 10 * time.Millisecond}, "heartbeat")
	code, desc, causes = parserError(err)
	require.Equal(t, int32(errs.ErrCode_HourglassResolution), code)
	require.Equal(t, err.Error(), desc)
	require.Len(t, causes, 2)
	require.Equal(t, "heartbeat", causes[0])
}

func TestNewWebRequiresStats(t *testing.T) {
	_, err := NewWeb("tcp", "127.0.0.1:0", &Options{})
	require.Error(t, err)
}
