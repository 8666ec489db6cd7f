package redisx

import "fmt"

const ns = "eventix:v1"

func KeyEventSummary(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:summary", ns, eventID)
}

func KeyEventAvailability(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:availability", ns, eventID)
}

func KeyEventList() string {
	return ns + ":events:list"
}

func ChannelSeatUpdates() string {
	return ns + ":seats:updated"
}
