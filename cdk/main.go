package main

import (
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

type UnostatStackProps struct {
	awscdk.StackProps
}

func NewUnostatStack(scope constructs.Construct, id string, props *UnostatStackProps) awscdk.Stack {
	var stackProps awscdk.StackProps
	if props != nil {
		stackProps = props.StackProps
	}

	stack := awscdk.NewStack(scope, &id, &stackProps)

	snapshots := awss3.NewBucket(stack, jsii.String("StandingsSnapshots"), &awss3.BucketProps{
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		RemovalPolicy:     awscdk.RemovalPolicy_RETAIN,
	})

	lambdaFn := awslambda.NewFunction(stack, jsii.String("UnostatApi"), &awslambda.FunctionProps{
		Runtime: awslambda.Runtime_PROVIDED_AL2023(),
		Handler: jsii.String("bootstrap"),
		Code:    awslambda.Code_FromAsset(jsii.String("../"), nil),
		Environment: &map[string]*string{
			"APP":              jsii.String("prod"),
			"POSTGRES_DSN":     jsii.String(os.Getenv("POSTGRES_DSN")),
			"SCORING_BASE_URL": jsii.String(os.Getenv("SCORING_BASE_URL")),
			"SCORING_TOKEN":    jsii.String(os.Getenv("SCORING_TOKEN")),
			"EXPORT_BUCKET":    snapshots.BucketName(),
			"EXPORT_REGION":    awscdk.Aws_REGION(),
		},
	})

	snapshots.GrantPut(lambdaFn, nil)

	awsapigateway.NewLambdaRestApi(stack, jsii.String("UnostatApiGateway"), &awsapigateway.LambdaRestApiProps{
		Handler: lambdaFn,
	})

	awscdk.NewCfnOutput(stack, jsii.String("SnapshotBucket"), &awscdk.CfnOutputProps{Value: snapshots.BucketName()})

	return stack
}

func main() {
	app := awscdk.NewApp(nil)
	NewUnostatStack(app, "UnostatStack", &UnostatStackProps{})
	app.Synth(nil)
}
