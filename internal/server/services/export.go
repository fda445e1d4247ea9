package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/dbx"
	sc "github.com/dmitrijs2005/fintrack/internal/server/config"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const exportURLExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

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

// ExportResult points at an uploaded CSV file.
type ExportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExportService writes a user's ledger as CSV to object storage and hands out
// a short-lived download link.
type ExportService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	now         func() time.Time
}

func NewExportService(db dbx.DBTX, m repomanager.RepositoryManager, config *sc.Config) *ExportService {
	return &ExportService{db: db, repomanager: m, config: config, now: time.Now}
}

func (s *ExportService) Enabled() bool {
	return s.config.S3Bucket != ""
}

func (s *ExportService) exportKey(ownerID string, kind models.Kind) string {
	d := s.now().UTC()
	return fmt.Sprintf("exports/%s/%s/%d/%02d/%02d/%v.csv", ownerID, kind.Plural(), d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ExportService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Export uploads the owner's entries of one kind, optionally limited to a
// year, and returns a presigned GET URL valid for 15 minutes.
func (s *ExportService) Export(ctx context.Context, kind models.Kind, ownerID string, year *int) (*ExportResult, error) {
	if !s.Enabled() {
		return nil, common.ErrExportDisabled
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown entry kind %q", kind)
	}

	repo := s.repomanager.Entries(s.db)
	var (
		list []*models.Entry
		err  error
	)
	if year != nil {
		list, err = repo.ListByOwnerAndYear(ctx, kind, ownerID, *year)
	} else {
		list, err = repo.ListByOwner(ctx, kind, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Plural(), err)
	}

	body, err := EncodeCSV(list)
	if err != nil {
		return nil, err
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	key := s.exportKey(ownerID, kind)
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(exportURLExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}

	return &ExportResult{
		Key:       key,
		URL:       req.URL,
		Rows:      len(list),
		ExpiresAt: s.now().Add(exportURLExpiry),
	}, nil
}

// EncodeCSV renders entries with a header row, in the given order.
func EncodeCSV(list []*models.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "date", "title", "category", "description", "amount", "created_at"})
	for _, e := range list {
		_ = w.Write([]string{
			e.ID,
			e.Date.String(),
			csvText(e.Title),
			csvText(e.Category),
			csvText(e.Description),
			e.Amount.String(),
			e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

// csvText prefixes free-text cells that a spreadsheet would read as a formula.
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
