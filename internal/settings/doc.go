// Package settings manages the mutable device configuration: the five
// phone/message notification slots and the alarm mode flag.
//
// All writes go through the persistent store so a power cut never loses
// an acknowledged change. A factory reset wipes the stored image and
// revokes the active session, forcing re-enrollment through the portal.
package settings
