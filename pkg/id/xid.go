package id

import "github.com/rs/xid"

// GetXid returns a new globally unique, sortable 20-character XID.
func GetXid() string {
	return xid.New().String()
}
