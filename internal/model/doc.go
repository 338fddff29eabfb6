// Package model defines the download task used throughout dlm.
//
// # Task
//
// A Task is one URL to fetch and the file name it is stored under:
//
//	task, err := model.NewTask("https://example.com/pub/file.tar.gz")
//	fmt.Println(task.FileName) // file.tar.gz
//
// # Task Lists
//
// ParseTasks reads one URL per line. Blank lines and lines starting with #
// are ignored, duplicates are dropped, and every bad line is reported:
//
//	tasks, err := model.ParseTasks(f)
//	if err != nil {
//	    // err lists each invalid line; tasks still holds the valid ones
//	}
package model
