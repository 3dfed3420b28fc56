package feed

import (
	"go.uber.org/fx"

	"github.com/smallbiznis/maziwa/internal/feed/repository"
	"github.com/smallbiznis/maziwa/internal/feed/service"
)

var Module = fx.Module("feed.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
