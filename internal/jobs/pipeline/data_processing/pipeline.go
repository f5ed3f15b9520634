package data_processing

import (
	"fmt"

	"github.com/yungbote/hotel-reservation-prediction/internal/dataset"
	jobrt "github.com/yungbote/hotel-reservation-prediction/internal/jobs/runtime"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/pipeerr"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	res := Result{DuplicatesDropped: map[string]int{}}

	jc.Progress(pipeerr.StepLoad, 5, "Loading train and test")
	train, err := dataset.ReadCSVFile(p.paths.TrainFile)
	if err != nil {
		return jc.Fail(pipeerr.StepLoad, "failed to load train data", err)
	}
	test, err := dataset.ReadCSVFile(p.paths.TestFile)
	if err != nil {
		return jc.Fail(pipeerr.StepLoad, "failed to load test data", err)
	}
	p.metrics.SetRows(StageName, "train", "load", train.Len())
	p.metrics.SetRows(StageName, "test", "load", test.Len())

	jc.Progress(pipeerr.StepDrop, 10, "Dropping identifier columns")
	p.log.Info("columns dropped",
		"train", train.Drop(p.cfg.DropColumns...),
		"test", test.Drop(p.cfg.DropColumns...),
	)
	if !train.Has(p.cfg.TargetColumn) {
		return jc.Fail(pipeerr.StepDrop, "target column missing", fmt.Errorf("column %q not found", p.cfg.TargetColumn))
	}

	jc.Progress(pipeerr.StepDedupe, 15, "Removing duplicate rows")
	res.DuplicatesDropped["train"] = train.DropDuplicates()
	res.DuplicatesDropped["test"] = test.DropDuplicates()
	p.metrics.SetRows(StageName, "train", "dedupe", train.Len())
	p.metrics.SetRows(StageName, "test", "dedupe", test.Len())

	jc.Progress(pipeerr.StepEncode, 25, "Label encoding categorical columns")
	_, end := jc.StepSpan(pipeerr.StepEncode)
	mappings, unseen, err := p.encode(train, test)
	end(err)
	if err != nil {
		return jc.Fail(pipeerr.StepEncode, "failed to encode categorical columns", err)
	}
	p.metrics.ReportDataQuality(jc.Ctx, p.log, StageName, map[string]int{
		"duplicate_rows":     res.DuplicatesDropped["train"] + res.DuplicatesDropped["test"],
		"unseen_test_labels": unseen,
	})

	jc.Progress(pipeerr.StepSkew, 35, "Reducing skewness")
	skew, err := p.transformSkewed(train, test)
	if err != nil {
		return jc.Fail(pipeerr.StepSkew, "failed to transform skewed columns", err)
	}
	for _, r := range skew {
		if r.Transformed {
			res.SkewedColumns = append(res.SkewedColumns, r.Column)
		}
	}
	p.log.Info("skewed columns transformed", "columns", res.SkewedColumns, "threshold", p.cfg.SkewnessThreshold)

	jc.Progress(pipeerr.StepBalance, 50, "Balancing classes with SMOTE")
	ctx, end := jc.StepSpan(pipeerr.StepBalance)
	train, rep, err := p.balance(ctx, train)
	if err == nil {
		res.SyntheticTrainRows = rep.Synthetic
		p.log.Info("train balanced", "before", rep.Before, "after", rep.After)
		if p.cfg.BalanceTest {
			test, rep, err = p.balance(ctx, test)
			if err == nil {
				res.SyntheticTestRows = rep.Synthetic
				p.log.Info("test balanced", "before", rep.Before, "after", rep.After)
			}
		}
	}
	end(err)
	if err != nil {
		return jc.Fail(pipeerr.StepBalance, "failed to balance data", err)
	}
	p.metrics.SetRows(StageName, "train", "balance", train.Len())
	p.metrics.SetRows(StageName, "test", "balance", test.Len())

	jc.Progress(pipeerr.StepSelect, 70, "Selecting features")
	ctx, end = jc.StepSpan(pipeerr.StepSelect)
	selected, importances, err := p.selectFeatures(ctx, train)
	if err == nil {
		train, err = train.Select(append(append([]string(nil), selected...), p.cfg.TargetColumn))
	}
	if err == nil {
		test, err = test.Select(train.Columns())
	}
	end(err)
	if err != nil {
		return jc.Fail(pipeerr.StepSelect, "failed to select features", err)
	}
	res.SelectedFeatures = selected
	p.log.Info("features selected", "features", selected)

	jc.Progress(pipeerr.StepSave, 90, "Saving processed data")
	if err := train.WriteCSVFile(p.paths.ProcessedTrain); err != nil {
		return jc.Fail(pipeerr.StepSave, "failed to save processed train", err)
	}
	if err := test.WriteCSVFile(p.paths.ProcessedTest); err != nil {
		return jc.Fail(pipeerr.StepSave, "failed to save processed test", err)
	}
	reports, err := writeReports(p.paths.ReportsDir, importances, skew, mappings)
	if err != nil {
		return jc.Fail(pipeerr.StepSave, "failed to write reports", err)
	}
	res.Reports = reports
	res.TrainRows = train.Len()
	res.TestRows = test.Len()
	p.log.Info("processed data saved",
		"processed_train", p.paths.ProcessedTrain,
		"processed_test", p.paths.ProcessedTest,
		"train_rows", res.TrainRows,
		"test_rows", res.TestRows,
	)
	jc.Succeed(pipeerr.StepSave, res)
	return nil
}
