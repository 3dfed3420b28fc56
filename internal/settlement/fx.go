package settlement

import (
	"go.uber.org/fx"

	"github.com/smallbiznis/maziwa/internal/settlement/service"
)

var Module = fx.Module("settlement.service",
	fx.Provide(service.New),
)
