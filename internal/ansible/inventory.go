package ansible

import (
	"fmt"
	"strings"

	"netchange/backend/pkg/models"
)

// BuildInventory renders an INI inventory for the given devices under one
// group. Host lines carry the connection address and port; credentials stay
// in central configuration and are never written into inventories.
func BuildInventory(devices []*models.Device, group string) string {
	if group == "" {
		group = "network_devices"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", group)
	for _, d := range devices {
		port := d.SSHPort
		if port == 0 {
			port = 22
		}
		fmt.Fprintf(&b, "%s ansible_host=%s ansible_port=%d\n", d.Name, d.IPAddress, port)
	}
	return b.String()
}
