package blobcontainer

import (
	"fmt"
	"strings"
)

// AccessPolicy is the public read level a container is created with.
// It only matters the first time a container is created.
type AccessPolicy int

const (
	Private         AccessPolicy = iota // no anonymous access
	BlobPublic                          // anonymous read of blobs, not of listings
	ContainerPublic                     // anonymous read of blobs and listings
)

func (a AccessPolicy) String() string {
	switch a {
	case Private:
		return "private"
	case BlobPublic:
		return "blob"
	case ContainerPublic:
		return "container"
	default:
		return fmt.Sprintf("AccessPolicy(%d)", int(a))
	}
}

func (a AccessPolicy) Valid() bool { return a >= Private && a <= ContainerPublic }

// ParseAccessPolicy accepts the String forms, case-insensitively.
// "" and "none" mean Private.
func ParseAccessPolicy(s string) (AccessPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "private":
		return Private, nil
	case "blob":
		return BlobPublic, nil
	case "container":
		return ContainerPublic, nil
	default:
		return Private, fmt.Errorf("blobcontainer: unknown access policy %q", s)
	}
}
