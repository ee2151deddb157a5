// Package gcs implements internal/driver.Driver over a Google Cloud
// Storage prefix, registering itself under the "gs" locator scheme
// (`gs://bucket/prefix/`). A dataset is one CSV part object per
// OutputStream under that prefix, the natural shape internal/stream.Split
// already produces.
package gcs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/dbcrossbar/dbcrossbar/internal/codec/csvschema"
	"github.com/dbcrossbar/dbcrossbar/internal/driver"
	"github.com/dbcrossbar/dbcrossbar/internal/locator"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
	"github.com/dbcrossbar/dbcrossbar/internal/stream"
	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

func init() {
	locator.Register("gs", func(loc locator.Locator) (any, error) {
		return Open(loc)
	})
}

// Driver is a gs: locator driver over one bucket+prefix.
type Driver struct {
	driver.Unimplemented
	client *storage.Client
	bucket string
	prefix string
}

// parseBucketPrefix splits a gs: locator body ("//bucket/prefix/...") into
// a bucket name and a (possibly empty) object-name prefix.
func parseBucketPrefix(body string) (bucket, prefix string, err error) {
	body = strings.TrimPrefix(body, "//")
	parts := strings.SplitN(body, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("gs: locator requires //bucket/prefix")
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
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, xerror.Wrap("gs: new client", err)
	}
	return &Driver{
		Unimplemented: driver.Unimplemented{DriverName: "gs"},
		client:        client,
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

func (d *Driver) bucketHandle() *storage.BucketHandle { return d.client.Bucket(d.bucket) }

// URI returns the gs:// wildcard URI for this driver's prefix, the form
// BigQuery's load-job API expects as a source (§4.D write_remote_data
// shortcut).
func (d *Driver) URI() string {
	return fmt.Sprintf("gs://%s/%s*", d.bucket, d.prefix)
}

// objectNames lists every object under d.prefix, in a stable sort order
// (part-0000.csv, part-0001.csv, ... sort lexically in creation order).
func (d *Driver) objectNames(ctx context.Context) ([]string, error) {
	it := d.bucketHandle().Objects(ctx, &storage.Query{Prefix: d.prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, xerror.Wrap("gs: list objects", err)
		}
		names = append(names, attrs.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (d *Driver) Schema(ctx context.Context) (*schema.Schema, error) {
	names, err := d.objectNames(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, &xerror.SchemaMismatchError{Reason: fmt.Sprintf("gs://%s/%s has no objects to sniff a schema from", d.bucket, d.prefix)}
	}
	r, err := d.bucketHandle().Object(names[0]).NewReader(ctx)
	if err != nil {
		return nil, xerror.Wrap("gs: read first object", err)
	}
	defer r.Close()
	header, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, xerror.Wrap("gs: read header", err)
	}
	return csvschema.Sniff(d.prefix, header)
}

func (d *Driver) LocalData(ctx context.Context, args driver.SharedArgs) (*stream.DatasetStream, error) {
	names, err := d.objectNames(ctx)
	if err != nil {
		return nil, err
	}
	ds := stream.Produce(ctx, 1, func(ctx context.Context, emit func(stream.OutputStream) error) error {
		for _, name := range names {
			r, err := d.bucketHandle().Object(name).NewReader(ctx)
			if err != nil {
				return xerror.Wrap("gs: open object "+name, err)
			}
			if err := emit(stream.OutputStream{Name: name, Body: r}); err != nil {
				r.Close()
				return err
			}
		}
		return nil
	})
	return &ds, nil
}

func (d *Driver) WriteLocalData(ctx context.Context, destSchema *schema.Schema, input stream.DatasetStream, args driver.SharedArgs) (driver.WriteFuture, error) {
	if !d.Features().Supports(args.IfExists.Mode) {
		return nil, &xerror.UnsupportedFeatureError{Driver: "gs", Operation: "if_exists mode"}
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
	name := fmt.Sprintf("%spart-%04d.csv", d.prefix, index)
	w := d.bucketHandle().Object(name).NewWriter(ctx)
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(part.Body); err != nil {
		w.Close()
		return xerror.Wrap("gs: buffer object", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		w.Close()
		return xerror.Wrap("gs: write object "+name, err)
	}
	return w.Close()
}

func (d *Driver) deleteAll(ctx context.Context) error {
	names, err := d.objectNames(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := d.bucketHandle().Object(name).Delete(ctx); err != nil {
			return xerror.Wrap("gs: delete object "+name, err)
		}
	}
	return nil
}
