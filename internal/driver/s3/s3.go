// Package s3 implements internal/driver.Driver over an Amazon S3
// prefix, registering itself under the "s3" locator scheme
// (`s3://bucket/prefix/`). Shaped identically to internal/driver/gcs:
// one CSV part object per OutputStream under the prefix.
package s3

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dbcrossbar/dbcrossbar/internal/codec/csvschema"
	"github.com/dbcrossbar/dbcrossbar/internal/driver"
	"github.com/dbcrossbar/dbcrossbar/internal/locator"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
	"github.com/dbcrossbar/dbcrossbar/internal/stream"
	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

func init() {
	locator.Register("s3", func(loc locator.Locator) (any, error) {
		return Open(loc)
	})
}

// Driver is an s3: locator driver over one bucket+prefix.
type Driver struct {
	driver.Unimplemented
	client *s3.Client
	bucket string
	prefix string
}

// parseBucketPrefix splits an s3: locator body ("//bucket/prefix/...")
// into a bucket name and a (possibly empty) object-key prefix.
func parseBucketPrefix(body string) (bucket, prefix string, err error) {
	body = strings.TrimPrefix(body, "//")
	parts := strings.SplitN(body, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("s3: locator requires //bucket/prefix")
	}
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return parts[0], prefix, nil
}

// Open parses loc.Body ("//bucket/prefix/...") into a bucket and prefix.
func Open(loc locator.Locator) (*Driver, error) {
	bucket, prefix, err := parseBucketPrefix(loc.Body)
	if err != nil {
		return nil, &xerror.LocatorError{Locator: loc.Raw, Reason: err.Error()}
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, xerror.Wrap("s3: load AWS config", err)
	}
	return &Driver{
		Unimplemented: driver.Unimplemented{DriverName: "s3"},
		client:        s3.NewFromConfig(cfg),
		bucket:        bucket,
		prefix:        prefix,
	}, nil
}

func (d *Driver) Features() driver.FeatureSet {
	return driver.FeatureSet{
		ReadSchema: true,
		ReadData:   true,
		WriteData:  true,
		IfExistsModes: []driver.IfExistsMode{
			driver.IfExistsError, driver.IfExistsAppend, driver.IfExistsOverwrite,
		},
	}
}

func (d *Driver) objectKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := d.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(d.bucket),
			Prefix:            aws.String(d.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, xerror.Wrap("s3: list objects", err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	sort.Strings(keys)
	return keys, nil
}

func (d *Driver) Schema(ctx context.Context) (*schema.Schema, error) {
	keys, err := d.objectKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, &xerror.SchemaMismatchError{Reason: fmt.Sprintf("s3://%s/%s has no objects to sniff a schema from", d.bucket, d.prefix)}
	}
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(d.bucket), Key: aws.String(keys[0])})
	if err != nil {
		return nil, xerror.Wrap("s3: read first object", err)
	}
	defer out.Body.Close()
	header, err := bufio.NewReader(out.Body).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, xerror.Wrap("s3: read header", err)
	}
	return csvschema.Sniff(d.prefix, header)
}

func (d *Driver) LocalData(ctx context.Context, args driver.SharedArgs) (*stream.DatasetStream, error) {
	keys, err := d.objectKeys(ctx)
	if err != nil {
		return nil, err
	}
	ds := stream.Produce(ctx, 1, func(ctx context.Context, emit func(stream.OutputStream) error) error {
		for _, key := range keys {
			out, err := d.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(d.bucket), Key: aws.String(key)})
			if err != nil {
				return xerror.Wrap("s3: open object "+key, err)
			}
			if err := emit(stream.OutputStream{Name: key, Body: out.Body}); err != nil {
				out.Body.Close()
				return err
			}
		}
		return nil
	})
	return &ds, nil
}

func (d *Driver) WriteLocalData(ctx context.Context, destSchema *schema.Schema, input stream.DatasetStream, args driver.SharedArgs) (driver.WriteFuture, error) {
	if !d.Features().Supports(args.IfExists.Mode) {
		return nil, &xerror.UnsupportedFeatureError{Driver: "s3", Operation: "if_exists mode"}
	}
	return driver.NewFuture(func() error {
		if args.IfExists.Mode == driver.IfExistsOverwrite {
			if err := d.deleteAll(ctx); err != nil {
				return err
			}
		}
		index := 0
		for {
			part, ok, err := input.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := d.writeObject(ctx, index, part); err != nil {
				part.Body.Close()
				return err
			}
			index++
		}
	}), nil
}

func (d *Driver) writeObject(ctx context.Context, index int, part stream.OutputStream) error {
	defer part.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(part.Body); err != nil {
		return xerror.Wrap("s3: buffer object", err)
	}
	key := fmt.Sprintf("%spart-%04d.csv", d.prefix, index)
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return xerror.Wrap("s3: put object "+key, err)
	}
	return nil
}

func (d *Driver) deleteAll(ctx context.Context) error {
	keys, err := d.objectKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if _, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(d.bucket), Key: aws.String(key)}); err != nil {
			return xerror.Wrap("s3: delete object "+key, err)
		}
	}
	return nil
}
