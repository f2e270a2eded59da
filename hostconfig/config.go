// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package hostconfig is host-side tooling: it loads device/session
// selection from a TOML file and persists named trigger-program presets as
// compact CBOR files. None of this is part of the device's own protocol or
// runtime state; it exists to make cmd/analyzersim and similar host tools
// configurable without hardcoding a device path or preset on every
// invocation.
package hostconfig

import (
	"fmt"

	"github.com/spf13/viper"
)

// Session describes which device to talk to and which default trigger
// preset to apply on connect.
type Session struct {
	Device       string `mapstructure:"device"`
	TriggerFile  string `mapstructure:"trigger_file"`
	ReplayRateHz int    `mapstructure:"replay_rate_hz"`
}

// Load reads a TOML config named "analyzer" from /etc and the working
// directory.
func Load() (Session, error) {
	viper.SetConfigName("analyzer")
	viper.AddConfigPath("/etc")
	viper.AddConfigPath(".")

	var s Session

	if err := viper.ReadInConfig(); err != nil {
		return s, fmt.Errorf("hostconfig: read config: %w", err)
	}

	if err := viper.UnmarshalKey("session", &s); err != nil {
		return s, fmt.Errorf("hostconfig: unmarshal session: %w", err)
	}

	return s, nil
}
