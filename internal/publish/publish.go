// Package publish moves finished artifacts to the configured storage tier
// and decides the reference a job exposes to clients.
package publish

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"sceneforge/internal/job"
	"sceneforge/internal/pkg/logger"
	"sceneforge/internal/ports"
)

const maxSlugLen = 50

// Result is the artifact reference after publication. URL is what clients
// follow; LocalPath is set while the local copy still exists; RemoteKey is
// the provider handle for later deletion of a remote copy.
type Result struct {
	URL       string
	LocalPath string
	RemoteKey string
}

// Publisher uploads artifacts through a storage provider. Upload failures
// are absorbed: the job still completes against the local copy.
type Publisher struct {
	sp  ports.StorageProvider
	log *logger.Logger
}

func New(sp ports.StorageProvider, log *logger.Logger) *Publisher {
	return &Publisher{sp: sp, log: log.WithComponent("publisher")}
}

// Publish stores the artifact for the given job. With a remote provider the
// local copy is deleted after a successful upload and the remote URL becomes
// the only reference. With a local provider, or when the upload fails, the
// job serves the local file through its download endpoint.
func (p *Publisher) Publish(ctx context.Context, j job.Job, artifactPath string) Result {
	local := Result{
		URL:       "/download/" + j.ID,
		LocalPath: artifactPath,
	}

	if !p.sp.Remote() {
		return local
	}

	log := p.log.WithJobID(j.ID)

	f, err := os.Open(artifactPath)
	if err != nil {
		log.WithError(err).Warn("artifact unreadable, keeping local reference")
		return local
	}
	defer f.Close()

	var size int64
	if st, statErr := f.Stat(); statErr == nil {
		size = st.Size()
	}

	out, err := p.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   ObjectKey(j),
		ContentType: "video/mp4",
		Reader:      f,
		Size:        size,
	})
	if err != nil {
		log.WithError(err).Warn("remote upload failed, keeping local reference")
		return local
	}

	f.Close()
	if err := os.Remove(artifactPath); err != nil {
		log.WithError(err).Warn("could not delete local artifact after upload")
	}

	log.Info("artifact published", "provider", p.sp.Provider(), "key", out.ObjectKey, "size", out.Size)
	return Result{URL: out.URL, RemoteKey: out.ObjectKey}
}

// ObjectKey derives a stable, human-readable storage key from the job's
// prompt: a slug plus a short content hash to disambiguate repeat prompts.
func ObjectKey(j job.Job) string {
	prompt := j.UserPrompt()
	sum := md5.Sum([]byte(prompt))
	return fmt.Sprintf("videos/%s_%s.mp4", slugify(prompt), hex.EncodeToString(sum[:])[:8])
}

// slugify keeps letters, digits, dashes and underscores; spaces become
// underscores and everything else is dropped.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	if slug == "" {
		slug = "animation"
	}
	return slug
}
