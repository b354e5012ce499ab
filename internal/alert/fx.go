package alert

import "go.uber.org/fx"

var Module = fx.Module("alert",
	fx.Provide(NewChecker),
)
