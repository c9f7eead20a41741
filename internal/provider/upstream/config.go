package upstream

// Config contains settings shared by every provider call.
//   - Timeout: upper bound in seconds for one call, streamed or buffered.
type Config struct {
	Timeout int `env:"UPSTREAM_TIMEOUT" envDefault:"120"`
}
