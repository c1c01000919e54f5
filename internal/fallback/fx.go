package fallback

import "go.uber.org/fx"

var Module = fx.Module("fallback.store",
	fx.Provide(New),
)
