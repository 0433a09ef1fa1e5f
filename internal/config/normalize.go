package config

import "strings"

func (c *Config) normalize() error {
	var err error

	for _, field := range []*string{&c.Paths.OutputDir, &c.Paths.StateDir, &c.Paths.LogDir} {
		if strings.TrimSpace(*field) == "" {
			*field = strings.TrimSpace(*field)
			continue
		}
		*field, err = expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
	}

	c.Conversion.Formats = normalizeFormats(c.Conversion.Formats)
	c.Conversion.UserMessage = strings.TrimSpace(c.Conversion.UserMessage)
	c.Decoder.Binary = strings.TrimSpace(c.Decoder.Binary)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	return nil
}

func normalizeFormats(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		name := strings.ToLower(strings.TrimSpace(value))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
