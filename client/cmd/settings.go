package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avrix/launcher/client/internal/preferences"
)

var (
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "show the launcher settings",
		RunE:  settingsListFunc,
	}
	settingsGetCmd = &cobra.Command{
		Use:   "get <key>",
		Short: "print one setting",
		Args:  cobra.ExactArgs(1),
		RunE:  settingsGetFunc,
	}
	settingsSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "change one setting, the value is parsed as JSON when possible",
		Args:  cobra.ExactArgs(2),
		RunE:  settingsSetFunc,
	}
	settingsAutoCheckCmd = &cobra.Command{
		Use:       "auto-check [on|off]",
		Short:     "show or change the automatic update check on startup",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE:      settingsAutoCheckFunc,
	}
)

func settingsListFunc(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	prefs, err := preferences.Load(ctx, cfg.SettingsPath)
	if err != nil {
		return err
	}

	cmd.Printf("settings file: %s\n", prefs.Path())
	for _, key := range prefs.Keys() {
		v, _ := prefs.Get(key)
		cmd.Printf("%s: %s\n", key, formatSettingValue(v))
	}
	return nil
}

func settingsGetFunc(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	prefs, err := preferences.Load(ctx, cfg.SettingsPath)
	if err != nil {
		return err
	}

	v, ok := prefs.Get(args[0])
	if !ok {
		return fmt.Errorf("setting %q is not set", args[0])
	}
	cmd.Println(formatSettingValue(v))
	return nil
}

func settingsSetFunc(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	prefs, err := preferences.Load(ctx, cfg.SettingsPath)
	if err != nil {
		return err
	}

	key, value := args[0], parseSettingValue(args[1])
	if key == preferences.KeyMemoryMB {
		mb, ok := value.(float64)
		if !ok || mb <= 0 {
			return fmt.Errorf("%s must be a positive number, got %q", key, args[1])
		}
		prefs.SetMemoryMB(int(mb))
	} else {
		prefs.Set(key, value)
	}

	return prefs.Save(ctx)
}

func settingsAutoCheckFunc(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	m, _, err := newManager(ctx, cmd)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		cmd.Printf("auto-check: %s\n", onOff(m.AutoCheckOnStartup()))
		return nil
	}

	enabled, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	if err := m.SetAutoCheckOnStartup(ctx, enabled); err != nil {
		return fmt.Errorf("save auto-check: %w", err)
	}
	cmd.Printf("auto-check: %s\n", onOff(enabled))
	return nil
}

// parseSettingValue keeps JSON types so numbers and booleans round trip
// through the settings file, anything else is stored as a string
func parseSettingValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func formatSettingValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
