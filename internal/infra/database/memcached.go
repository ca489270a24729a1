package database

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

func NewMemcached(servers ...string) (*memcache.Client, error) {
	client := memcache.New(servers...)
	client.Timeout = 500 * time.Millisecond
	if err := client.Ping(); err != nil {
		return nil, errors.Wrap(err, "memcached ping failed")
	}
	return client, nil
}
