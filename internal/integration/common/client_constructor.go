package common

import (
	"github.com/futig/jd-assessment/internal/config"
	pkgHTTP "github.com/futig/jd-assessment/pkg/http"
	"go.uber.org/zap"
)

// NewBaseConnector builds the HTTP connector for one upstream service.
func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger) *pkgHTTP.Connector {
	opts := []pkgHTTP.HttpOpts{
		pkgHTTP.WithTimeouts(pkgHTTP.Timeouts{
			Request:        cfg.RequestTimeout,
			Dial:           cfg.ConnTimeout,
			KeepAlive:      cfg.KeepAlive,
			IdleConn:       cfg.IdleConnTimeout,
			ResponseHeader: cfg.ResponseHeaderTimeout,
		}),
		pkgHTTP.WithRequestLogging(),
	}
	if cfg.Token != "" {
		opts = append(opts, pkgHTTP.WithAuthToken(cfg.Token))
	}

	return pkgHTTP.NewConnector(&pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}, opts...)
}
