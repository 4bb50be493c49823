package mongodb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestDeadlineFollowsContext(t *testing.T) {
	want := time.Now().Add(2 * time.Second)
	ctx, cancel := context.WithDeadline(context.Background(), want)
	defer cancel()

	if got := deadline(ctx); !got.Equal(want) {
		t.Fatalf("expected context deadline %v, got %v", want, got)
	}

	got := deadline(context.Background())
	if got.Before(time.Now().Add(defaultIOTimeout - time.Second)) {
		t.Fatalf("expected default deadline about %v ahead, got %v", defaultIOTimeout, got)
	}
}

func TestImageStoreConcurrentPutAndOpen(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx := context.Background()

	repo, err := NewMongoDBRepository(ctx, uri, "flocktrack_test", nil)
	if err != nil {
		t.Fatalf("NewMongoDBRepository returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close(ctx) })

	store, err := NewImageStore(repo, "images_"+fmt.Sprint(time.Now().UnixNano()), "http://localhost", nil)
	if err != nil {
		t.Fatalf("NewImageStore returned error: %v", err)
	}

	// Short and long deadlines interleave on the same store.
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		i := i
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, time.Duration(i+1)*5*time.Second)
			defer cancel()

			key := fmt.Sprintf("flock-%d/032024.png", i)
			data := bytes.Repeat([]byte{byte(i)}, 64)
			if err := store.Put(callCtx, key, data, "image/png"); err != nil {
				return err
			}
			stream, err := store.Open(callCtx, key)
			if err != nil {
				return err
			}
			defer stream.Close()
			got, err := io.ReadAll(stream)
			if err != nil {
				return err
			}
			if !bytes.Equal(got, data) {
				return fmt.Errorf("image %s came back with %d bytes", key, len(got))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent image access failed: %v", err)
	}
}
