package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

func (s Service) BucketAdd(ctx context.Context, req BucketAddRequest) (BucketSummary, error) {
	name, err := bucketName(req.Name)
	if err != nil {
		return BucketSummary{}, err
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return BucketSummary{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("bucket url is required")
	}
	dir := s.Layout.BucketDir(name)
	if _, err := os.Lstat(dir); err == nil {
		return BucketSummary{}, errbuilder.New().
			WithCode(errbuilder.CodeAlreadyExists).
			WithMsg(fmt.Sprintf("bucket already exists: %s", name))
	}
	if err := os.MkdirAll(s.Layout.BucketsDir(), 0755); err != nil {
		return BucketSummary{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create buckets directory").
			WithCause(err)
	}
	if err := s.Remote.Clone(ctx, url, dir); err != nil {
		_ = os.RemoveAll(dir)
		return BucketSummary{}, err
	}
	apps, err := s.Repository.ListApps(ctx, name)
	if err != nil {
		return BucketSummary{}, err
	}
	log.Ctx(ctx).Info().Str("bucket", name).Int("apps", len(apps)).Msg("bucket added")
	return BucketSummary{Name: name, URL: url, Apps: len(apps)}, nil
}

func (s Service) BucketRemove(ctx context.Context, req BucketRemoveRequest) error {
	name, err := bucketName(req.Name)
	if err != nil {
		return err
	}
	dir := s.Layout.BucketDir(name)
	if _, err := os.Lstat(dir); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("bucket not found: %s", name)).
			WithCause(err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to remove bucket %s", name)).
			WithCause(err)
	}
	log.Ctx(ctx).Info().Str("bucket", name).Msg("bucket removed")
	return nil
}

// BucketUpdate pulls every named bucket, or all buckets when none are
// named. Buckets that are not git checkouts are skipped. Failures do not stop
// the remaining updates and are reported together.
func (s Service) BucketUpdate(ctx context.Context, req BucketUpdateRequest) (BucketUpdateResult, error) {
	names := req.Names
	if len(names) == 0 {
		buckets, err := s.Repository.ListBuckets(ctx)
		if err != nil {
			return BucketUpdateResult{}, err
		}
		for _, bucket := range buckets {
			names = append(names, bucket.Name)
		}
	}
	result := BucketUpdateResult{}
	var errs []error
	for _, raw := range names {
		name, err := bucketName(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		dir := s.Layout.BucketDir(name)
		if _, err := os.Stat(dir); err != nil {
			errs = append(errs, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("bucket not found: %s", name)).
				WithCause(err))
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); errors.Is(err, fs.ErrNotExist) {
			log.Ctx(ctx).Debug().Str("bucket", name).Msg("not a git checkout, skipping")
			result.Skipped = append(result.Skipped, name)
			continue
		}
		if err := s.Remote.Pull(ctx, dir); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("bucket", name).Msg("bucket update failed")
			errs = append(errs, err)
			continue
		}
		log.Ctx(ctx).Info().Str("bucket", name).Msg("bucket updated")
		result.Updated = append(result.Updated, name)
	}
	if len(errs) > 0 {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("%d of %d buckets failed to update", len(errs), len(names))).
			WithCause(errors.Join(errs...))
	}
	return result, nil
}

func (s Service) BucketList(ctx context.Context) (BucketListResult, error) {
	buckets, err := s.Repository.ListBuckets(ctx)
	if err != nil {
		return BucketListResult{}, err
	}
	result := BucketListResult{Buckets: make([]BucketSummary, 0, len(buckets))}
	for _, bucket := range buckets {
		summary := BucketSummary{Name: bucket.Name}
		if url, err := s.Remote.RemoteURL(ctx, s.Layout.BucketDir(bucket.Name)); err == nil {
			summary.URL = url
		}
		apps, err := s.Repository.ListApps(ctx, bucket.Name)
		if err != nil {
			return BucketListResult{}, err
		}
		summary.Apps = len(apps)
		result.Buckets = append(result.Buckets, summary)
	}
	return result, nil
}

func bucketName(value string) (string, error) {
	name := strings.TrimSpace(value)
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid bucket name %q", value))
	}
	return name, nil
}
