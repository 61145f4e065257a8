package opts

import (
	"github.com/walteh/copysnip/pkg/config"
	"github.com/walteh/copysnip/pkg/log"
	"github.com/walteh/copysnip/pkg/storage"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Config     *config.Config
	Store      storage.Store
	UserLogger *log.Logger
}
