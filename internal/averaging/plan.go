package averaging

import (
	"github.com/pmip/dmcompare/internal/catalog"
	"github.com/pmip/dmcompare/internal/results"
)

// Job is one period, region, dataset and variable combination.
type Job struct {
	Key      results.Key
	Period   catalog.Period
	Region   catalog.Region
	Dataset  catalog.Reconstruction
	RecVar   catalog.RecVariable
	Variable catalog.Variable
}

// Plan lists the jobs of the catalog analysis table in period, region,
// dataset and variable order.
func Plan(cat *catalog.Catalog) []Job {
	var jobs []Job
	for _, p := range cat.Periods {
		entries := cat.Analysis[p.Name]
		if len(entries) == 0 {
			continue
		}
		for _, region := range cat.Regions {
			for _, rec := range cat.Reconstructions {
				for _, a := range entries {
					if a.Dataset != rec.Name {
						continue
					}
					for _, name := range a.Variables {
						v, _ := cat.Variable(name)
						jobs = append(jobs, Job{
							Key:      results.Key{Period: p.Name, Variable: name, Region: region.Name, Dataset: rec.Name},
							Period:   p,
							Region:   region,
							Dataset:  rec,
							RecVar:   rec.Variables[name],
							Variable: v,
						})
					}
				}
			}
		}
	}
	return jobs
}
