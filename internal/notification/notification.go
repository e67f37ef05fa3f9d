package notification

import (
	"fmt"
	"strings"
)

// DeviceToken is a push endpoint a participant registered from the mobile
// or web client.
type DeviceToken struct {
	Platform string `json:"platform"`
	Token    string `json:"token"`
}

type RegisterDeviceRequest struct {
	Platform string `json:"platform"`
	Token    string `json:"token"`
}

func (r *RegisterDeviceRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return fmt.Errorf("token is required")
	}
	switch r.Platform {
	case "android", "ios", "web", "":
	default:
		return fmt.Errorf("unknown platform %q", r.Platform)
	}
	return nil
}
