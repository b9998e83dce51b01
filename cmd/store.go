package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-engine/internal/config"
	"github.com/sells-group/esg-engine/internal/source"
	"github.com/sells-group/esg-engine/internal/store"
	"github.com/sells-group/esg-engine/pkg/esgapi"
)

// initStore opens and migrates the configured store.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch c.Store.Driver {
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = "esg.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, c.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initAPI builds the backend API client.
func initAPI(c *config.Config) esgapi.Client {
	return esgapi.NewClient(c.API.BaseURL,
		esgapi.WithToken(c.API.Token),
		esgapi.WithRateLimit(c.API.RateLimit),
		esgapi.WithTimeout(time.Duration(c.API.TimeoutSecs)*time.Second),
	)
}

// openSource returns the named data source and a close func.
func openSource(ctx context.Context, c *config.Config, kind, file string) (source.Source, func(), error) {
	noop := func() {}
	switch kind {
	case "store", "":
		if err := c.Validate("store"); err != nil {
			return nil, noop, err
		}
		st, err := initStore(ctx, c)
		if err != nil {
			return nil, noop, err
		}
		return &source.StoreSource{Store: st}, func() { _ = st.Close() }, nil
	case "api":
		if err := c.Validate("api"); err != nil {
			return nil, noop, err
		}
		return &source.APISource{Client: initAPI(c)}, noop, nil
	case "file":
		if file == "" {
			return nil, noop, eris.New("--file is required with --source file")
		}
		src, err := source.OpenFile(file)
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil
	default:
		return nil, noop, eris.Errorf("unknown source %q (want store, api or file)", kind)
	}
}
