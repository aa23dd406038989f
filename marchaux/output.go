package marchaux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is a lossless raster image file format. The zero value is PNG.
type Format uint8

const (
	FormatPNG Format = iota
	FormatBMP
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "PNG"
	case FormatBMP:
		return "BMP"
	case FormatTIFF:
		return "TIFF"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	}
	return "application/octet-stream"
}

// FormatFromName returns the image format matching the extension of a file name or object key.
func FormatFromName(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case "":
		return 0, fmt.Errorf("no file extension in %q to pick image format from", name)
	}
	return 0, fmt.Errorf("unsupported image format extension %q", ext)
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unsupported image format %v", f)
}

// WriteFile encodes img to a new file named filename in the format matching its extension.
func WriteFile(filename string, img image.Image) (err error) {
	f, err := FormatFromName(filename)
	if err != nil {
		return err
	}
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		errClose := fp.Close()
		if err == nil {
			err = errClose
		}
	}()
	err = Encode(fp, img, f)
	if err != nil {
		return err
	}
	return fp.Sync()
}

// ParseS3URL splits a URL of the form s3://bucket/key into its bucket and key.
func ParseS3URL(u string) (bucket, key string, ok bool) {
	rest, ok := strings.CutPrefix(u, "s3://")
	if !ok {
		return "", "", false
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// S3Config configures the S3 client created by [NewS3Client].
// Credentials are taken from the AWS SDK's default credential chain.
type S3Config struct {
	Region string
	// Endpoint is optional and selects an S3 compatible service using path style addressing.
	Endpoint string
}

// NewS3Client creates an S3 client for use with [UploadS3].
func NewS3Client(cfg S3Config) (s3iface.S3API, error) {
	if cfg.Region == "" {
		return nil, errors.New("empty S3 region")
	}
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("creating S3 session: %w", err)
	}
	return s3.New(sess), nil
}

// UploadS3 encodes img in the format matching key's extension and stores it in bucket under key.
func UploadS3(ctx context.Context, client s3iface.S3API, bucket, key string, img image.Image) error {
	f, err := FormatFromName(key)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	err = Encode(&buf, img, f)
	if err != nil {
		return err
	}
	_, err = client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String(f.ContentType()),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// Preview returns a copy of img scaled down so that its largest side is at most
// maxSize pixels, preserving aspect ratio. Images already within maxSize are returned as is.
func Preview(img image.Image, maxSize uint) image.Image {
	return resize.Thumbnail(maxSize, maxSize, img, resize.Bilinear)
}
