package blobstore

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Indirections over the AWS SDK so tests can substitute fakes.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3ReplicaConfig carries the MinIO-style credentials for the replica
// endpoint.
type S3ReplicaConfig struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Replica mirrors ciphertext blobs to an S3-compatible bucket and
// hands out short-lived download URLs. Only ciphertext ever leaves the
// host; keys and IVs stay in the database.
type S3Replica struct {
	cfg S3ReplicaConfig
}

func NewS3Replica(cfg S3ReplicaConfig) *S3Replica {
	return &S3Replica{cfg: cfg}
}

func (r *S3Replica) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(r.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			r.cfg.RootUser,
			r.cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(r.cfg.BaseEndpoint)
	}), nil
}

// Upload streams the blob into the bucket under storedName.
func (r *S3Replica) Upload(ctx context.Context, storedName string, body io.Reader) error {
	client, err := r.client(ctx)
	if err != nil {
		return err
	}

	bucket := r.cfg.Bucket
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &storedName,
		Body:   body,
	})
	return err
}

// PresignGet returns a presigned GET URL for a replicated blob.
func (r *S3Replica) PresignGet(ctx context.Context, storedName string) (string, error) {
	client, err := r.client(ctx)
	if err != nil {
		return "", err
	}

	bucket := r.cfg.Bucket
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &storedName,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
