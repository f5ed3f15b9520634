package data_ingestion

import (
	"context"
	"fmt"
	"path"

	"github.com/yungbote/hotel-reservation-prediction/internal/dataset"
	jobrt "github.com/yungbote/hotel-reservation-prediction/internal/jobs/runtime"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/gcp"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/pipeerr"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if p.store == nil {
		return jc.Fail(pipeerr.StepConfig, "missing object store", fmt.Errorf("nil downloader"))
	}
	uri := gcp.URI(p.cfg.BucketName, p.cfg.BucketFileName)

	jc.Progress(pipeerr.StepDownload, 10, "Downloading raw bookings")
	ctx, end := jc.StepSpan(pipeerr.StepDownload)
	n, err := p.download(ctx)
	end(err)
	if err != nil {
		return jc.Fail(pipeerr.StepDownload, "failed to download csv file", err)
	}
	p.log.Info("raw file downloaded", "uri", uri, "dst", p.paths.RawFile, "bytes", n)

	jc.Progress(pipeerr.StepSplit, 60, "Splitting train and test")
	_, end = jc.StepSpan(pipeerr.StepSplit)
	res, err := p.split()
	end(err)
	if err != nil {
		return jc.Fail(pipeerr.StepSplit, "failed to split data", err)
	}
	res.RawBytes = n
	p.metrics.SetRows(StageName, "raw", "load", res.RawRows)
	p.metrics.SetRows(StageName, "train", "split", res.TrainRows)
	p.metrics.SetRows(StageName, "test", "split", res.TestRows)
	p.log.Info("train and test written",
		"train_file", p.paths.TrainFile,
		"test_file", p.paths.TestFile,
		"train_rows", res.TrainRows,
		"test_rows", res.TestRows,
	)
	jc.Succeed(pipeerr.StepSplit, res)
	return nil
}

func (p *Pipeline) download(ctx context.Context) (int64, error) {
	ok, err := p.store.Exists(ctx, p.cfg.BucketName, p.cfg.BucketFileName)
	if err != nil {
		return 0, err
	}
	if !ok {
		prefix := path.Dir(p.cfg.BucketFileName)
		if prefix == "." {
			prefix = ""
		}
		// Listing is only a hint for the log line.
		if keys, lerr := p.store.ListObjects(ctx, p.cfg.BucketName, prefix); lerr == nil {
			if len(keys) > 10 {
				keys = keys[:10]
			}
			p.log.Warn("raw object missing", "bucket", p.cfg.BucketName, "object", p.cfg.BucketFileName, "nearby", keys)
		}
		return 0, fmt.Errorf("%s: %w", gcp.URI(p.cfg.BucketName, p.cfg.BucketFileName), gcp.ErrObjectNotFound)
	}
	return p.store.DownloadToFile(ctx, p.cfg.BucketName, p.cfg.BucketFileName, p.paths.RawFile)
}

func (p *Pipeline) split() (Result, error) {
	raw, err := dataset.ReadCSVFile(p.paths.RawFile)
	if err != nil {
		return Result{}, err
	}
	train, test, err := dataset.TrainTestSplit(raw, 1-p.cfg.TrainRatio, p.cfg.RandomState)
	if err != nil {
		return Result{}, err
	}
	if err := train.WriteCSVFile(p.paths.TrainFile); err != nil {
		return Result{}, err
	}
	if err := test.WriteCSVFile(p.paths.TestFile); err != nil {
		return Result{}, err
	}
	return Result{
		RawRows:   raw.Len(),
		TrainRows: train.Len(),
		TestRows:  test.Len(),
		RawFile:   p.paths.RawFile,
	}, nil
}
