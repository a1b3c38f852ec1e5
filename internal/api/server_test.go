package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rahul711sharma/momentum-analysis/pkg/config"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

func TestServer_StartShutdown(t *testing.T) {
	router, _ := newTestRouter(t)
	srv := New(&config.Config{Port: "0", Env: "development"}, logger.Nop(), router)
	assert.Empty(t, srv.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
