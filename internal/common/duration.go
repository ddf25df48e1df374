package common

import "time"

// Duration is a time.Duration that decodes from "60s" style strings in
// TOML and YAML config files via encoding.TextUnmarshaler
type Duration time.Duration

// Duration returns the standard library representation
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
