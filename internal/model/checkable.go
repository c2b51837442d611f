package model

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Checkable represents a monitored entity: a host, or a service on a host.
type Checkable struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	HostName    string             `json:"host_name" bson:"host_name"`
	ServiceName string             `json:"service_name,omitempty" bson:"service_name,omitempty"`
	DisplayName string             `json:"display_name,omitempty" bson:"display_name,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// Key returns the checkable's stable lookup key: the host name, or
// "host!service" for a service checkable.
func (c *Checkable) Key() string {
	return CheckableKey(c.HostName, c.ServiceName)
}

// CheckableKey composes the lookup key for a host/service pair.
func CheckableKey(hostName, serviceName string) string {
	if serviceName == "" {
		return hostName
	}
	return hostName + "!" + serviceName
}

// Validate validates the checkable definition.
func (c *Checkable) Validate() error {
	if c.HostName == "" {
		return errors.New("host name is required")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return nil
}
