package feedrequest

import (
	"go.uber.org/fx"

	"github.com/smallbiznis/maziwa/internal/feedrequest/repository"
	"github.com/smallbiznis/maziwa/internal/feedrequest/service"
)

var Module = fx.Module("feedrequest.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
