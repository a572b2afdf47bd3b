/*
go-deepforest provides individual tree crown detection in RGB aerial
imagery using pretrained object detection models.  It is a thin wrapper
around the OpenCV DNN stack via gocv: model deserialization, inference,
non-max suppression and image rendering are all delegated to OpenCV,
while this package supplies the glue for configuration, pretrained
release weights, delegated training and single image prediction.

Prediction requires a model to be present in the session.  Train a new
model with Train, load a saved model when constructing the session, or
fetch the latest pretrained release with UseRelease.

See example code and usage in the example subdirectory.
*/
package deepforest
