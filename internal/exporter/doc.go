// Package exporter writes the intermediate and result tables of the pipeline.
//
// CSVWriter covers three shapes of output:
//
//   - fixed schemas written from csv-tagged structs with gocsv (WriteRecords)
//   - tables whose column labels come from configuration (WriteTable,
//     UpsertTable, CreateStreamWriter for the large per-minute files)
//   - the summary workbook that gathers the result tables into one .xlsx
//     file (WriteWorkbook)
//
// Relative paths resolve against the statistics folder. Paths ending in .gz
// are compressed.
package exporter
