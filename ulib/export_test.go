package ulib

// ReleaseHeap exposes the heap unlock path to the external tests.
var ReleaseHeap = (*Heap).release
