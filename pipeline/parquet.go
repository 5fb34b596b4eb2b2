package pipeline

import (
	"math"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// seriesParquetRow flattens a SeriesRow for the parquet writer. Missing
// channel samples are encoded as NaN, mirroring the CSV empty cell.
type seriesParquetRow struct {
	TimeS       int64   `parquet:"name=time_s, type=INT64"`
	DistanceM   float64 `parquet:"name=distance_m, type=DOUBLE"`
	HRBPM       float64 `parquet:"name=heartrate_bpm, type=DOUBLE"`
	CadenceSPM  float64 `parquet:"name=cadence_spm, type=DOUBLE"`
	AltitudeM   float64 `parquet:"name=altitude_m, type=DOUBLE"`
	VelocityMPS float64 `parquet:"name=velocity_mps, type=DOUBLE"`
	GradePct    float64 `parquet:"name=grade_pct, type=DOUBLE"`
	SegmentType string  `parquet:"name=segment_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

func writeSeriesParquet(path string, rows []SeriesRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fw.Close()
	return writeParquetRows(fw, rows)
}

// MarshalSeriesParquet renders the series to parquet in memory, for callers
// serving artifacts without a scratch directory.
func MarshalSeriesParquet(rows []SeriesRow) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := writeParquetRows(fw, rows); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func writeParquetRows(fw source.ParquetFile, rows []SeriesRow) error {
	pw, err := writer.NewParquetWriter(fw, new(seriesParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		row := seriesParquetRow{
			TimeS:       int64(r.TimeS),
			DistanceM:   valueOrNaN(r.DistanceM),
			HRBPM:       valueOrNaN(r.HRBPM),
			CadenceSPM:  valueOrNaN(r.CadenceSPM),
			AltitudeM:   valueOrNaN(r.AltitudeM),
			VelocityMPS: valueOrNaN(r.VelocityMPS),
			GradePct:    valueOrNaN(r.GradePct),
			SegmentType: r.SegmentType,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
