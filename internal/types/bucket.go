package types

import (
	"fmt"
	"strings"
)

type Bucket struct {
	Name string
}

// BucketApp is a manifest file discovered inside a bucket. It refers to its
// bucket by name only.
type BucketApp struct {
	Name         string
	Bucket       string
	MetadataPath string
}

func (a BucketApp) Key() string {
	return a.Bucket + "/" + a.Name
}

func (a BucketApp) Ref() BucketAppName {
	return BucketAppName{Bucket: a.Bucket, Name: a.Name}
}

// BucketAppName is a user or manifest supplied reference, either "app" or
// "bucket/app".
type BucketAppName struct {
	Bucket string
	Name   string
}

func ParseBucketAppName(value string) (BucketAppName, error) {
	value = strings.TrimSpace(value)
	bucket, name, qualified := strings.Cut(value, "/")
	if !qualified {
		name = bucket
		bucket = ""
	}
	bucket = strings.TrimSpace(bucket)
	name = strings.TrimSpace(name)
	if name == "" || (qualified && bucket == "") {
		return BucketAppName{}, fmt.Errorf("invalid app reference %q", value)
	}
	return BucketAppName{Bucket: bucket, Name: name}, nil
}

func (n BucketAppName) Qualified() bool {
	return n.Bucket != ""
}

func (n BucketAppName) String() string {
	if n.Bucket == "" {
		return n.Name
	}
	return n.Bucket + "/" + n.Name
}

func (n BucketAppName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *BucketAppName) UnmarshalText(text []byte) error {
	parsed, err := ParseBucketAppName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
