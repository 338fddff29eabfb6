// Package storage writes downloaded bodies to a gocloud.dev blob bucket.
//
// The output location is a bucket URL (file:///srv/downloads, s3://bucket,
// gs://bucket, mem://) or a plain directory path, which is opened as a
// local file bucket. A write only becomes visible once it is committed; an
// aborted write leaves nothing behind.
//
//	store, err := storage.Open(ctx, "./downloads")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	w, err := store.NewWriter(ctx, "file.iso")
//	if err != nil {
//	    return err
//	}
//	if _, err := io.Copy(w, body); err != nil {
//	    w.Abort()
//	    return err
//	}
//	return w.Commit()
package storage
